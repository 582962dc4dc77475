// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package nativefake

import (
	"fmt"

	"github.com/wavetermdev/nativetree/pkg/util"
)

// ObjectReplacementChar marks anchors and paintables inside buffer text.
const ObjectReplacementChar = '￼'

type TagRange struct {
	Name  string
	Start int
	End   int
}

type TextBuffer struct {
	*Object
	text []rune
	Tags []TagRange
}

func (tk *Toolkit) NewTextBuffer() *TextBuffer {
	tb := &TextBuffer{Object: tk.makeObject("TextBuffer")}
	tb.setMethod("insert", tb.insert)
	tb.setMethod("delete", tb.delete)
	tb.setMethod("getCharCount", func(args []any) (any, error) { return len(tb.text), nil })
	tb.setMethod("applyTagByName", func(args []any) (any, error) {
		name, _ := args[0].(string)
		start, _ := util.ToInt(args[1])
		end, _ := util.ToInt(args[2])
		tb.Tags = append(tb.Tags, TagRange{Name: name, Start: start, End: end})
		return nil, nil
	})
	tb.setMethod("removeTagByName", func(args []any) (any, error) {
		name, _ := args[0].(string)
		var kept []TagRange
		for _, tr := range tb.Tags {
			if tr.Name != name {
				kept = append(kept, tr)
			}
		}
		tb.Tags = kept
		return nil, nil
	})
	tb.setMethod("createChildAnchor", func(args []any) (any, error) {
		if _, err := tb.insert([]any{args[0], string(ObjectReplacementChar)}); err != nil {
			return nil, err
		}
		return tk.makeObject("TextChildAnchor"), nil
	})
	tb.setMethod("insertPaintable", func(args []any) (any, error) {
		return tb.insert([]any{args[0], string(ObjectReplacementChar)})
	})
	return tb
}

func (tb *TextBuffer) Text() string {
	return string(tb.text)
}

func (tb *TextBuffer) insert(args []any) (any, error) {
	offset, ok := util.ToInt(args[0])
	if !ok || offset < 0 || offset > len(tb.text) {
		return nil, fmt.Errorf("insert: offset %v out of range (len %d)", args[0], len(tb.text))
	}
	str, _ := args[1].(string)
	ins := []rune(str)
	rtn := make([]rune, 0, len(tb.text)+len(ins))
	rtn = append(rtn, tb.text[:offset]...)
	rtn = append(rtn, ins...)
	rtn = append(rtn, tb.text[offset:]...)
	tb.text = rtn
	tb.Emit("changed")
	return nil, nil
}

func (tb *TextBuffer) delete(args []any) (any, error) {
	start, ok1 := util.ToInt(args[0])
	end, ok2 := util.ToInt(args[1])
	if !ok1 || !ok2 || start < 0 || end > len(tb.text) || start > end {
		return nil, fmt.Errorf("delete: bad range [%v,%v] (len %d)", args[0], args[1], len(tb.text))
	}
	tb.text = append(tb.text[:start:start], tb.text[end:]...)
	tb.Emit("changed")
	return nil, nil
}
