package set

import (
	"testing"

	"github.com/sunsided/go-oidcserver/infra/assert"
)

func TestNewStringSetDedupsAndSorts(t *testing.T) {
	s := NewStringSet("b", "a", "b", "c")
	assert.Equal(t, s.Len(), 3)
	assert.Equal(t, s.Items(), []string{"a", "b", "c"})
}

func TestSplitSpaceSeparatedIgnoresExtraSpaces(t *testing.T) {
	s := SplitSpaceSeparated(" openid  profile ")
	assert.Equal(t, s.Len(), 2)
	assert.True(t, s.Contains("openid"))
	assert.True(t, s.Contains("profile"))
}

func TestSplitSpaceSeparatedEmptyStringYieldsEmptySet(t *testing.T) {
	s := SplitSpaceSeparated("")
	assert.Equal(t, s.Len(), 0)
}

func TestJoinSpaceSeparatedRoundTrips(t *testing.T) {
	s := NewStringSet("openid", "profile")
	assert.Equal(t, JoinSpaceSeparated(s), "openid profile")
}

func TestContainsSpaceDetectsEmbeddedSpace(t *testing.T) {
	assert.True(t, ContainsSpace("openid", "open id"))
	assert.False(t, ContainsSpace("openid", "profile"))
}

func TestIsSupersetOf(t *testing.T) {
	full := NewStringSet("openid", "profile", "email")
	subset := NewStringSet("openid", "profile")
	assert.True(t, full.IsSupersetOf(subset))
	assert.False(t, subset.IsSupersetOf(full))
}

func TestEqualsIgnoresOrder(t *testing.T) {
	a := New(nil, "x", "y")
	b := New(nil, "y", "x")
	assert.True(t, a.Equals(b))
}

func TestEqualsDiffersOnLength(t *testing.T) {
	a := NewStringSet("x", "y")
	b := NewStringSet("x")
	assert.False(t, a.Equals(b))
}
