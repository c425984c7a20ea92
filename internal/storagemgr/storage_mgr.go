package storagemgr

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/crunchdao/coordinator-settle/pkg/loggers"
	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

const (
	Proposals = "proposals"
)

var globalStorageMgr = &storageMgr{
	storageBuilderMap: make(map[string]func(p string) (*leveldb.DB, error)),
	storages:          make(map[string]*leveldb.DB),
	lock:              new(sync.Mutex),
}

func init() {
	memoryBuilder := func(p string) (*leveldb.DB, error) {
		return leveldb.Open(storage.NewMemStorage(), nil)
	}

	// only for test
	globalStorageMgr.storageBuilderMap[repo.KVStorageTypeLeveldb] = memoryBuilder
	globalStorageMgr.storageBuilderMap[repo.KVStorageTypeMemory] = memoryBuilder
	globalStorageMgr.storageBuilderMap[""] = memoryBuilder
}

type storageMgr struct {
	storageBuilderMap map[string]func(p string) (*leveldb.DB, error)
	storages          map[string]*leveldb.DB
	defaultKVType     string
	sync              bool
	lock              *sync.Mutex
}

func (m *storageMgr) open(typ string, p string) (*leveldb.DB, error) {
	builder, ok := m.storageBuilderMap[typ]
	if !ok {
		return nil, fmt.Errorf("unknow kv type %s, expect leveldb or memory", typ)
	}
	return builder(p)
}

func Initialize(repoConfig *repo.Config) error {
	globalStorageMgr.lock.Lock()
	defer globalStorageMgr.lock.Unlock()

	globalStorageMgr.sync = repoConfig.Storage.Sync
	globalStorageMgr.storageBuilderMap[repo.KVStorageTypeLeveldb] = func(p string) (*leveldb.DB, error) {
		db, err := leveldb.OpenFile(p, &opt.Options{NoSync: !globalStorageMgr.sync})
		if err != nil {
			return nil, err
		}
		loggers.Logger(loggers.Storage).WithField("path", p).Info("Open leveldb storage")
		return db, nil
	}
	_, ok := globalStorageMgr.storageBuilderMap[repoConfig.Storage.KVType]
	if !ok {
		return fmt.Errorf("unknow kv type %s, expect leveldb or memory", repoConfig.Storage.KVType)
	}
	globalStorageMgr.defaultKVType = repoConfig.Storage.KVType
	return nil
}

// Open returns the storage at p, opening it on first use. Callers share one handle per path.
func Open(p string) (*leveldb.DB, error) {
	return OpenSpecifyType(globalStorageMgr.defaultKVType, p)
}

func OpenSpecifyType(typ string, p string) (*leveldb.DB, error) {
	globalStorageMgr.lock.Lock()
	defer globalStorageMgr.lock.Unlock()
	s, ok := globalStorageMgr.storages[p]
	if !ok {
		var err error
		s, err = globalStorageMgr.open(typ, p)
		if err != nil {
			return nil, err
		}
		globalStorageMgr.storages[p] = s
	}
	return s, nil
}

// Close closes and forgets the storage at p.
func Close(p string) error {
	globalStorageMgr.lock.Lock()
	defer globalStorageMgr.lock.Unlock()
	s, ok := globalStorageMgr.storages[p]
	if !ok {
		return nil
	}
	delete(globalStorageMgr.storages, p)
	return s.Close()
}

func GetComponentPath(rep *repo.Repo, component string) string {
	return filepath.Join(repo.GetStoragePath(rep.RepoRoot), component)
}
