package framevm

import (
	"fmt"
	"math/big"
	"sort"
)

// FromGo converts plain Go values into Values. Slices become Tuples, maps become Dicts.
func FromGo(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return None, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case int32:
		return Int(v), nil
	case uint64:
		return MakeBigInt(new(big.Int).SetUint64(v)), nil
	case *big.Int:
		return MakeBigInt(new(big.Int).Set(v)), nil
	case float64:
		return Float(v), nil
	case float32:
		return Float(v), nil
	case string:
		return Str(v), nil
	case []any:
		ret := make(Tuple, 0, len(v))
		for _, elem := range v {
			e, err := FromGo(elem)
			if err != nil {
				return nil, err
			}
			ret = append(ret, e)
		}
		return ret, nil
	case []string:
		ret := make(Tuple, 0, len(v))
		for _, s := range v {
			ret = append(ret, Str(s))
		}
		return ret, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := NewDict()
		for _, k := range keys {
			e, err := FromGo(v[k])
			if err != nil {
				return nil, err
			}
			if err := d.Set(Str(k), e); err != nil {
				return nil, err
			}
		}
		return d, nil
	}
	return nil, fmt.Errorf("cannot convert %T to a value", v)
}
