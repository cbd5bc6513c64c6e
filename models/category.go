package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/go-playground/validator"
)

type ClothingCategory string

const (
	// tops
	CategoryTShirt   ClothingCategory = "Tişört"
	CategoryShirt    ClothingCategory = "Gömlek"
	CategoryPolo     ClothingCategory = "Polo"
	CategorySweater  ClothingCategory = "Kazak"
	CategoryHoodie   ClothingCategory = "Kapüşonlu"
	CategoryBlazer   ClothingCategory = "Ceket"
	CategoryCardigan ClothingCategory = "Hırka"
	CategoryTank     ClothingCategory = "Atlet"
	CategoryBlouse   ClothingCategory = "Bluz"

	// bottoms
	CategoryJeans    ClothingCategory = "Kot Pantolon"
	CategoryTrousers ClothingCategory = "Kumaş Pantolon"
	CategoryShorts   ClothingCategory = "Şort"
	CategorySkirt    ClothingCategory = "Etek"
	CategoryLeggings ClothingCategory = "Tayt"

	// one piece
	CategoryDress    ClothingCategory = "Elbise"
	CategoryJumpsuit ClothingCategory = "Tulum"
	CategoryRomper   ClothingCategory = "Şort Tulum"

	// outerwear
	CategoryCoat   ClothingCategory = "Palto"
	CategoryJacket ClothingCategory = "Mont"
	CategoryVest   ClothingCategory = "Yelek"
	CategoryKimono ClothingCategory = "Kimono"

	// shoes
	CategorySneakers   ClothingCategory = "Spor Ayakkabı"
	CategoryDressShoes ClothingCategory = "Klasik Ayakkabı"
	CategoryBoots      ClothingCategory = "Bot"
	CategorySandals    ClothingCategory = "Sandalet"
	CategoryHeels      ClothingCategory = "Topuklu"
	CategoryFlats      ClothingCategory = "Babet"

	// accessories
	CategoryBag     ClothingCategory = "Çanta"
	CategoryHat     ClothingCategory = "Şapka"
	CategoryScarf   ClothingCategory = "Atkı"
	CategoryBelt    ClothingCategory = "Kemer"
	CategoryJewelry ClothingCategory = "Takı"
	CategoryGlasses ClothingCategory = "Gözlük"
)

type CategoryGroup string

const (
	GroupTops        CategoryGroup = "Üst Giyim"
	GroupBottoms     CategoryGroup = "Alt Giyim"
	GroupOnePiece    CategoryGroup = "Tek Parça"
	GroupOuterwear   CategoryGroup = "Dış Giyim"
	GroupShoes       CategoryGroup = "Ayakkabı"
	GroupAccessories CategoryGroup = "Aksesuar"
)

var categoryGroups = map[ClothingCategory]CategoryGroup{
	CategoryTShirt:   GroupTops,
	CategoryShirt:    GroupTops,
	CategoryPolo:     GroupTops,
	CategorySweater:  GroupTops,
	CategoryHoodie:   GroupTops,
	CategoryBlazer:   GroupTops,
	CategoryCardigan: GroupTops,
	CategoryTank:     GroupTops,
	CategoryBlouse:   GroupTops,

	CategoryJeans:    GroupBottoms,
	CategoryTrousers: GroupBottoms,
	CategoryShorts:   GroupBottoms,
	CategorySkirt:    GroupBottoms,
	CategoryLeggings: GroupBottoms,

	CategoryDress:    GroupOnePiece,
	CategoryJumpsuit: GroupOnePiece,
	CategoryRomper:   GroupOnePiece,

	CategoryCoat:   GroupOuterwear,
	CategoryJacket: GroupOuterwear,
	CategoryVest:   GroupOuterwear,
	CategoryKimono: GroupOuterwear,

	CategorySneakers:   GroupShoes,
	CategoryDressShoes: GroupShoes,
	CategoryBoots:      GroupShoes,
	CategorySandals:    GroupShoes,
	CategoryHeels:      GroupShoes,
	CategoryFlats:      GroupShoes,

	CategoryBag:     GroupAccessories,
	CategoryHat:     GroupAccessories,
	CategoryScarf:   GroupAccessories,
	CategoryBelt:    GroupAccessories,
	CategoryJewelry: GroupAccessories,
	CategoryGlasses: GroupAccessories,
}

// ParseClothingCategory matches a raw stored value exactly.
func ParseClothingCategory(value string) (ClothingCategory, bool) {
	c := ClothingCategory(value)
	_, ok := categoryGroups[c]
	return c, ok
}

func (c ClothingCategory) Group() CategoryGroup {
	return categoryGroups[c]
}

func (c ClothingCategory) IsValid() bool {
	_, ok := categoryGroups[c]
	return ok
}

func (c *ClothingCategory) Scan(value interface{}) error {
	s, err := scanString(value)
	if err != nil {
		return err
	}
	*c = ClothingCategory(s)
	return nil
}

func (c ClothingCategory) Value() (driver.Value, error) {
	return string(c), nil
}

func ValidateCategory(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return ClothingCategory(value).IsValid()
}

func scanString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported enum column type %T", value)
	}
}
