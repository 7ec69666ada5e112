// Package idtype defines the closed set of datablock type codes, their
// iteration order and the per-type metadata table.
package idtype

import "fmt"

// Code is a two-letter type tag, stored high byte first.
type Code uint16

const (
	Library          Code = 'L'<<8 | 'I'
	Ipo              Code = 'I'<<8 | 'P'
	Action           Code = 'A'<<8 | 'C'
	ShapeKey         Code = 'K'<<8 | 'E'
	Palette          Code = 'P'<<8 | 'L'
	GreasePencil     Code = 'G'<<8 | 'D'
	NodeTree         Code = 'N'<<8 | 'T'
	Image            Code = 'I'<<8 | 'M'
	Texture          Code = 'T'<<8 | 'E'
	Material         Code = 'M'<<8 | 'A'
	Font             Code = 'V'<<8 | 'F'
	CacheFile        Code = 'C'<<8 | 'F'
	PointCloud       Code = 'P'<<8 | 'T'
	Volume           Code = 'V'<<8 | 'O'
	Mesh             Code = 'M'<<8 | 'E'
	Curve            Code = 'C'<<8 | 'U'
	Metaball         Code = 'M'<<8 | 'B'
	Lattice          Code = 'L'<<8 | 'T'
	Light            Code = 'L'<<8 | 'A'
	Camera           Code = 'C'<<8 | 'A'
	Text             Code = 'T'<<8 | 'X'
	Sound            Code = 'S'<<8 | 'O'
	Collection       Code = 'G'<<8 | 'R'
	Brush            Code = 'B'<<8 | 'R'
	ParticleSettings Code = 'P'<<8 | 'A'
	Speaker          Code = 'S'<<8 | 'K'
	World            Code = 'W'<<8 | 'O'
	MovieClip        Code = 'M'<<8 | 'C'
	Mask             Code = 'M'<<8 | 'S'
	Screen           Code = 'S'<<8 | 'R'
	Object           Code = 'O'<<8 | 'B'
	LineStyle        Code = 'L'<<8 | 'S'
	Scene            Code = 'S'<<8 | 'C'
	WorkSpace        Code = 'W'<<8 | 'S'
	WindowManager    Code = 'W'<<8 | 'M'
)

// Index is a code's position in the iteration and teardown order.
// Libraries come first since anything may reference them; shared small
// resources precede the types embedding them; node trees, images, textures
// and materials precede geometry; geometry precedes objects, objects precede
// scenes, and window managers come last.
type Index int

const (
	IndexLibrary Index = iota
	IndexIpo
	IndexAction
	IndexShapeKey
	IndexPalette
	IndexGreasePencil
	IndexNodeTree
	IndexImage
	IndexTexture
	IndexMaterial
	IndexFont
	IndexCacheFile
	IndexPointCloud
	IndexVolume
	IndexMesh
	IndexCurve
	IndexMetaball
	IndexLattice
	IndexLight
	IndexCamera
	IndexText
	IndexSound
	IndexCollection
	IndexBrush
	IndexParticleSettings
	IndexSpeaker
	IndexWorld
	IndexMovieClip
	IndexMask
	IndexScreen
	IndexObject
	IndexLineStyle
	IndexScene
	IndexWorkSpace
	IndexWindowManager

	IndexMax
)

var order = [...]Code{
	IndexLibrary:          Library,
	IndexIpo:              Ipo,
	IndexAction:           Action,
	IndexShapeKey:         ShapeKey,
	IndexPalette:          Palette,
	IndexGreasePencil:     GreasePencil,
	IndexNodeTree:         NodeTree,
	IndexImage:            Image,
	IndexTexture:          Texture,
	IndexMaterial:         Material,
	IndexFont:             Font,
	IndexCacheFile:        CacheFile,
	IndexPointCloud:       PointCloud,
	IndexVolume:           Volume,
	IndexMesh:             Mesh,
	IndexCurve:            Curve,
	IndexMetaball:         Metaball,
	IndexLattice:          Lattice,
	IndexLight:            Light,
	IndexCamera:           Camera,
	IndexText:             Text,
	IndexSound:            Sound,
	IndexCollection:       Collection,
	IndexBrush:            Brush,
	IndexParticleSettings: ParticleSettings,
	IndexSpeaker:          Speaker,
	IndexWorld:            World,
	IndexMovieClip:        MovieClip,
	IndexMask:             Mask,
	IndexScreen:           Screen,
	IndexObject:           Object,
	IndexLineStyle:        LineStyle,
	IndexScene:            Scene,
	IndexWorkSpace:        WorkSpace,
	IndexWindowManager:    WindowManager,
}

// The order table must hold exactly one slot per Index; either constant
// underflows when they disagree.
const (
	_ = uint(len(order) - int(IndexMax))
	_ = uint(int(IndexMax) - len(order))
)

var indexOf = func() map[Code]Index {
	m := make(map[Code]Index, len(order))
	for i, c := range order {
		if c == 0 {
			panic(fmt.Sprintf("idtype: index %d has no code", i))
		}
		if _, dup := m[c]; dup {
			panic(fmt.Sprintf("idtype: code %s listed twice", c))
		}
		m[c] = Index(i)
	}
	return m
}()

// Codes returns every code in index order.
func Codes() []Code {
	out := make([]Code, len(order))
	copy(out, order[:])
	return out
}

// At returns the code stored at index i.
func At(i Index) Code {
	return order[i]
}

// Index returns the code's position in the iteration order. An unknown code
// is a programming error and panics.
func (c Code) Index() Index {
	i, ok := indexOf[c]
	if !ok {
		panic(fmt.Sprintf("idtype: unknown type code %#04x", uint16(c)))
	}
	return i
}

// Valid reports whether c belongs to the enumeration.
func (c Code) Valid() bool {
	_, ok := indexOf[c]
	return ok
}

func (c Code) String() string {
	return string([]byte{byte(c >> 8), byte(c)})
}

// ParseCode converts a two-letter tag into a Code.
func ParseCode(s string) (Code, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("idtype: code %q: want two letters", s)
	}
	c := Code(s[0])<<8 | Code(s[1])
	if !c.Valid() {
		return 0, fmt.Errorf("idtype: unknown code %q", s)
	}
	return c, nil
}

// PrefixOf returns the code encoded in the first two bytes of a prefixed name.
func PrefixOf(name string) Code {
	if len(name) < 2 {
		return 0
	}
	return Code(name[0])<<8 | Code(name[1])
}
