package traits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndMembership(t *testing.T) {
	s := New()
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has("kyc_clear"))

	require.True(t, s.Add("kyc_clear"))
	assert.True(t, s.Has("kyc_clear"))
	assert.Equal(t, 1, s.Len())

	require.True(t, s.Add("aml"))
	assert.Equal(t, []string{"kyc_clear", "aml"}, s.List())

	// re-adding an existing name is a no-op
	assert.False(t, s.Add("kyc_clear"))
	assert.Equal(t, []string{"kyc_clear", "aml"}, s.List())
}

func TestRemove(t *testing.T) {
	s := New("kyc_clear", "aml", "accreditation")

	require.True(t, s.Remove("aml"))
	assert.False(t, s.Has("aml"))
	assert.Equal(t, []string{"kyc_clear", "accreditation"}, s.List())

	// removing an absent name is a no-op
	assert.False(t, s.Remove("aml"))
	assert.Equal(t, []string{"kyc_clear", "accreditation"}, s.List())

	require.True(t, s.Remove("kyc_clear"))
	require.True(t, s.Remove("accreditation"))
	assert.Equal(t, []string{}, s.List())
}

func TestConstructorCollapsesDuplicates(t *testing.T) {
	s := New("one", "two", "one", "two", "three")
	assert.Equal(t, []string{"one", "two", "three"}, s.List())
	assert.Equal(t, 3, s.Len())
}

func TestReplaceAll(t *testing.T) {
	s := New("kyc", "aml")

	s.ReplaceAll([]string{"kyc", "blah", "blah"})
	assert.Equal(t, []string{"kyc", "blah"}, s.List())
	assert.False(t, s.Has("aml"))

	s.ReplaceAll(nil)
	assert.Equal(t, []string{}, s.List())
	assert.False(t, s.Has("kyc"))
}

func TestMembershipMatchesListing(t *testing.T) {
	s := New()
	ops := []struct {
		add  bool
		name string
	}{
		{true, "a"}, {true, "b"}, {false, "a"}, {true, "c"},
		{true, "a"}, {false, "b"}, {false, "missing"},
	}
	for _, op := range ops {
		if op.add {
			s.Add(op.name)
		} else {
			s.Remove(op.name)
		}
		// invariant: a name is present iff it appears exactly once in List
		seen := map[string]int{}
		for _, name := range s.List() {
			seen[name]++
		}
		for name, count := range seen {
			assert.Equal(t, 1, count, "duplicate listing for %q", name)
			assert.True(t, s.Has(name))
		}
		assert.Equal(t, s.Len(), len(seen))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New("kyc")
	dup := s.Clone()

	dup.Add("aml")
	s.Remove("kyc")

	assert.Equal(t, []string{}, s.List())
	assert.Equal(t, []string{"kyc", "aml"}, dup.List())
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("kyc_clear"))
	assert.True(t, ValidName("accredited investor"))

	assert.False(t, ValidName(""))
	assert.False(t, ValidName("kyc\x1fclear"))
	assert.False(t, ValidName(Separator))
}
