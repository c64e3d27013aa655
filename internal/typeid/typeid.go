package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser      = "user"
	PrefixCanvas    = "canvas"
	PrefixSnapshot  = "snap"
	PrefixOp        = "op"
	PrefixShape     = "shape"
	PrefixGroup     = "group"
	PrefixComponent = "comp"
	PrefixHistory   = "hist"
	PrefixColor     = "color"
	PrefixTextStyle = "tstyle"
	PrefixAsset     = "asset"
	PrefixExport    = "exp"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string      { return New(PrefixUser) }
func NewCanvasID() string    { return New(PrefixCanvas) }
func NewSnapshotID() string  { return New(PrefixSnapshot) }
func NewOpID() string        { return New(PrefixOp) }
func NewShapeID() string     { return New(PrefixShape) }
func NewGroupID() string     { return New(PrefixGroup) }
func NewComponentID() string { return New(PrefixComponent) }
func NewHistoryID() string   { return New(PrefixHistory) }
func NewColorID() string     { return New(PrefixColor) }
func NewTextStyleID() string { return New(PrefixTextStyle) }
func NewAssetID() string     { return New(PrefixAsset) }
func NewExportID() string    { return New(PrefixExport) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
