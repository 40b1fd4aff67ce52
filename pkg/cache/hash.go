package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// hashKey builds "kind:sha256(parts)". The parts are JSON-encoded first, so
// key structs with equal fields always hash alike.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// keyKind returns the kind segment of a key built by hashKey, looking past
// any scope prefix. Keys of other shapes are KindOther.
func keyKind(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return KindOther
	}
	head := key[:i]
	switch kind := head[strings.LastIndexByte(head, ':')+1:]; kind {
	case KindMap, KindArtifact:
		return kind
	}
	return KindOther
}

// Hash returns the hex SHA-256 of data. Map hashes in artifact keys use it
// too.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
