package appctx

import (
	"github.com/traykit/tray/internal/kernel"
	"github.com/traykit/tray/internal/text"
)

// TextSpace is the state of a text editor area.
type TextSpace struct {
	Text *text.Text
	// Top is the first visible line.
	Top int
}

var textSpaceDir = []string{"edit_text"}

// TextSpaceContext answers members for a text editor area.
func TextSpaceContext(c *Context, member string, r *Result) Status {
	if member == "" {
		r.Dir = textSpaceDir
		return Found
	}
	st := c.TextSpace()
	if st == nil {
		return Missing
	}
	if member == "edit_text" {
		if st.Text == nil {
			return NoData
		}
		r.SetPointer(st.Text)
		return Found
	}
	return Missing
}

var screenDir = []string{"scene", "view_layer", "tray_data", "active_object", "objects"}

// ScreenContext answers the members every screen provides.
func ScreenContext(c *Context, member string, r *Result) Status {
	switch member {
	case "":
		r.Dir = screenDir
		return Found
	case "scene":
		if s := c.Scene(); s != nil {
			r.SetPointer(s)
			return Found
		}
		return NoData
	case "view_layer":
		if vl := c.ViewLayer(); vl != nil {
			r.SetPointer(vl)
			return Found
		}
		return NoData
	case "tray_data":
		if m := c.Main(); m != nil {
			r.SetPointer(m)
			return Found
		}
		return NoData
	case "active_object":
		if vl := c.ViewLayer(); vl != nil && vl.Active != nil {
			r.SetPointer(vl.Active)
			return Found
		}
		return NoData
	case "objects":
		m := c.Main()
		if m == nil {
			return NoData
		}
		r.Type = TypeCollection
		m.Objects().Each(func(db kernel.Datablock) bool {
			r.Append(db)
			return true
		})
		return Found
	}
	return Missing
}
