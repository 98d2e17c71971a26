package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackageType(t *testing.T) {
	pt, err := ParsePackageType(" Surf ")
	require.NoError(t, err)
	assert.Equal(t, PackageTypeSurf, pt)
	assert.Equal(t, "surfPackages", pt.Collection())

	_, err = ParsePackageType("kite")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "packageType", verr.Field)
}

func TestNextPackageID(t *testing.T) {
	assert.Equal(t, "1", NextPackageID(nil))
	assert.Equal(t, "8", NextPackageID([]*Package{{ID: "3"}, {ID: "7"}, {ID: "legacy-x"}}))
	assert.Equal(t, "1", NextPackageID([]*Package{{ID: "abc"}}))
}

func TestSortPackages(t *testing.T) {
	pkgs := []*Package{{ID: "10"}, {ID: "2"}, {ID: "1"}}
	SortPackages(pkgs)
	assert.Equal(t, []string{"1", "2", "10"}, []string{pkgs[0].ID, pkgs[1].ID, pkgs[2].ID})
}

func TestPackage_CloneIsDeep(t *testing.T) {
	orig := &Package{
		ID:         "1",
		Highlights: []string{"a"},
		DateRanges: []DateRange{{ID: "dr", MaxParticipants: IntPtr(5)}},
		Details:    map[string]map[string]string{"acc": {"Hotel": "Villa"}},
	}

	c := orig.Clone()
	c.Highlights[0] = "changed"
	c.DateRanges[0].CurrentParticipants = 4
	*c.DateRanges[0].MaxParticipants = 9
	c.Details["acc"]["Hotel"] = "Hostel"

	assert.Equal(t, "a", orig.Highlights[0])
	assert.Equal(t, 0, orig.DateRanges[0].CurrentParticipants)
	assert.Equal(t, 5, *orig.DateRanges[0].MaxParticipants)
	assert.Equal(t, "Villa", orig.Details["acc"]["Hotel"])
}

func TestPackage_DateRangeLookup(t *testing.T) {
	pkg := &Package{DateRanges: []DateRange{{ID: "a"}, {ID: "b"}}}

	assert.Equal(t, 1, pkg.FindDateRange("b"))
	assert.Equal(t, -1, pkg.FindDateRange("z"))
	assert.Nil(t, pkg.DateRange("z"))

	pkg.DateRange("a").CurrentParticipants = 3
	assert.Equal(t, 3, pkg.DateRanges[0].CurrentParticipants)
}

func TestPackageInput_Apply(t *testing.T) {
	pkg := &Package{ID: "1", DateRanges: []DateRange{{ID: "dr"}}, Details: map[string]map[string]string{"acc": {}}}

	PackageInput{Name: " Bali ", Highlights: []string{" Surf ", ""}, Price: 1000}.Apply(pkg)

	assert.Equal(t, "Bali", pkg.Name)
	assert.Equal(t, []string{"Surf"}, pkg.Highlights)
	assert.Equal(t, Money(1000), pkg.Price)
	assert.Len(t, pkg.DateRanges, 1)
	assert.Contains(t, pkg.Details, "acc", "nil details keep the stored map")
}

func TestPackage_Normalize(t *testing.T) {
	pkg := &Package{}
	pkg.Normalize()
	assert.NotNil(t, pkg.Highlights)
	assert.NotNil(t, pkg.DateRanges)
	assert.NotNil(t, pkg.Details)
}
