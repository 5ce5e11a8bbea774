package loader

import (
	"encoding/json"

	"github.com/gowebpki/jcs"
	"github.com/pkg/errors"
)

// Key identifies one load. Params are compared by their canonical JSON form, so two parameter sets that
// encode to the same object share a key regardless of field or map order.
type Key struct {
	Resource string
	// Scope separates callers that must not share results, e.g. different credentials.
	Scope  string
	Params interface{}
}

func (k Key) String() string {
	id, err := k.id()
	if err != nil {
		return k.Resource + ":<invalid>"
	}
	return id
}

func (k Key) id() (string, error) {
	prefix := k.Resource
	if k.Scope != "" {
		prefix = prefix + "@" + k.Scope
	}
	if k.Params == nil {
		return prefix + ":", nil
	}

	encoded, err := json.Marshal(k.Params)
	if err != nil {
		return "", errors.Wrapf(err, "failed to encode params of %s", k.Resource)
	}
	canonical, err := jcs.Transform(encoded)
	if err != nil {
		return "", errors.Wrapf(err, "failed to canonicalize params of %s", k.Resource)
	}
	return prefix + ":" + string(canonical), nil
}
