package cache

import (
	"maps"
	"slices"
	"strings"
)

// KeyPrefix marca las claves del store que pertenecen al cache.
const KeyPrefix = "@cache:"

// Scope identifica una colección cacheada, p.ej. "animals" de project=P.
// Se guarda dentro de la entrada para detectar colisiones de clave.
type Scope struct {
	Collection string            `json:"collection"`
	Params     map[string]string `json:"params,omitempty"`
}

// NewScope arma un Scope a partir de pares clave/valor.
// Un par incompleto al final se ignora.
func NewScope(collection string, kv ...string) Scope {
	s := Scope{Collection: strings.TrimSpace(collection)}
	if len(kv) >= 2 {
		s.Params = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			s.Params[kv[i]] = kv[i+1]
		}
	}
	return s
}

// Key es determinística: params ordenados por nombre.
func (s Scope) Key() string {
	var b strings.Builder
	b.WriteString(KeyPrefix)
	b.WriteString(s.Collection)
	b.WriteString(":")

	keys := slices.Sorted(maps.Keys(s.Params))
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(s.Params[k])
	}
	return b.String()
}

func (s Scope) Equal(o Scope) bool {
	if s.Collection != o.Collection || len(s.Params) != len(o.Params) {
		return false
	}
	for k, v := range s.Params {
		if ov, ok := o.Params[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// CollectionPrefix devuelve el prefijo (relativo a KeyPrefix) de toda una colección.
func CollectionPrefix(collection string) string {
	return collection + ":"
}
