package common

import (
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	NA       = "N/A"
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var (
	snowflakeNode *snowflake.Node
	snowflakeOnce sync.Once
)

// UUIDint64 returns a cluster-unique int64 id.
func UUIDint64() int64 {
	snowflakeOnce.Do(func() {
		rand.Seed(time.Now().UnixNano())
		node, err := snowflake.NewNode(rand.Int63n(1023))
		if err != nil {
			panic(err)
		}
		snowflakeNode = node
	})
	return snowflakeNode.Generate().Int64()
}

// IfEmptyStr returns defval when src is empty.
func IfEmptyStr(src string, defval string) string {
	if src == "" {
		return defval
	}
	return src
}

// FileExists tests a regular file path.
func FileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// MustMakeDir creates dir and parents, ignoring exist errors.
func MustMakeDir(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = os.MkdirAll(path, 0o755)
	}
}
