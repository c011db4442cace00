package koreader

import (
	"context"
	"fmt"
	"sort"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// evalSidecar runs a sidecar file in a fresh Lua state and returns the
// table it evaluates to. No standard library is opened: sidecar files are
// plain table constructors, so anything else is rejected by the
// interpreter rather than executed.
func evalSidecar(ctx context.Context, raw string, timeout time.Duration) (*lua.LTable, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	L.SetContext(ctx)

	if err := L.DoString(raw); err != nil {
		return nil, fmt.Errorf("evaluate sidecar: %w", err)
	}
	if L.GetTop() == 0 {
		return nil, fmt.Errorf("sidecar returned no value")
	}

	tbl, ok := L.Get(-1).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("sidecar returned %s, expected table", L.Get(-1).Type())
	}
	return tbl, nil
}

// tableField returns the sub-table stored under key.
func tableField(tbl *lua.LTable, key string) (*lua.LTable, error) {
	switch v := tbl.RawGetString(key).(type) {
	case *lua.LTable:
		return v, nil
	default:
		if v == lua.LNil {
			return nil, fmt.Errorf("missing %q table", key)
		}
		return nil, fmt.Errorf("field %q is %s, expected table", key, v.Type())
	}
}

// stringField reads an optional string. Absent values read as "".
// Numbers are accepted and formatted the way Lua would print them.
func stringField(tbl *lua.LTable, key string) (string, error) {
	switch v := tbl.RawGetString(key).(type) {
	case lua.LString:
		return string(v), nil
	case lua.LNumber:
		return v.String(), nil
	default:
		if v == lua.LNil {
			return "", nil
		}
		return "", fmt.Errorf("field %q is %s, expected string", key, v.Type())
	}
}

// boolField reads an optional boolean. Absent values read as false.
func boolField(tbl *lua.LTable, key string) (bool, error) {
	switch v := tbl.RawGetString(key).(type) {
	case lua.LBool:
		return bool(v), nil
	default:
		if v == lua.LNil {
			return false, nil
		}
		return false, fmt.Errorf("field %q is %s, expected boolean", key, v.Type())
	}
}

type keyedTable struct {
	key   lua.LValue
	value *lua.LTable
}

// entryTables returns the sub-tables of a list-like table ordered by key:
// integer keys ascending, then any other keys in string order. A
// non-table element is a structural error.
func entryTables(tbl *lua.LTable) ([]*lua.LTable, error) {
	var entries []keyedTable
	var badKey lua.LValue

	tbl.ForEach(func(k, v lua.LValue) {
		sub, ok := v.(*lua.LTable)
		if !ok {
			if badKey == nil {
				badKey = k
			}
			return
		}
		entries = append(entries, keyedTable{key: k, value: sub})
	})

	if badKey != nil {
		return nil, fmt.Errorf("entry %s is not a table", badKey.String())
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ni, iNum := entries[i].key.(lua.LNumber)
		nj, jNum := entries[j].key.(lua.LNumber)
		switch {
		case iNum && jNum:
			return ni < nj
		case iNum != jNum:
			return iNum
		default:
			return entries[i].key.String() < entries[j].key.String()
		}
	})

	tables := make([]*lua.LTable, len(entries))
	for i, e := range entries {
		tables[i] = e.value
	}
	return tables, nil
}
