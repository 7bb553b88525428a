package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sakif/playlister/internal/model"
)

func TestEqual(t *testing.T) {
	oid := primitive.NewObjectID()
	other := primitive.NewObjectID()

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"object id vs its hex string", oid, oid.Hex(), true},
		{"object id vs model.ID", oid, model.ID(oid.Hex()), true},
		{"pointer to object id vs string", &oid, oid.Hex(), true},
		{"different object ids", oid, other, false},
		{"uint vs decimal string", uint(42), "42", true},
		{"int64 vs model.ID", int64(7), model.ID("7"), true},
		{"numeric string vs numeric string", "15", "15", true},
		{"different numbers", uint(1), "2", false},
		{"surrounding whitespace is ignored", " 42 ", uint(42), true},
		{"empty never equals empty", "", "", false},
		{"nil never equals nil", nil, nil, false},
		{"zero object id never equals empty", primitive.NilObjectID, "", false},
		{"object id hex is not a number", oid.Hex(), uint(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			// Equal is symmetric.
			assert.Equal(t, tt.want, Equal(tt.b, tt.a))
		})
	}
}

func TestCanonical_ObjectIDUsesBareHex(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, oid.Hex(), Canonical(oid))
	assert.Len(t, Canonical(oid), 24)
}

func TestLooksLikeObjectID(t *testing.T) {
	assert.True(t, LooksLikeObjectID(primitive.NewObjectID().Hex()))
	assert.True(t, LooksLikeObjectID("507F1F77BCF86CD799439011"))
	assert.False(t, LooksLikeObjectID("42"))
	assert.False(t, LooksLikeObjectID("507f1f77bcf86cd79943901"))  // 23 chars
	assert.False(t, LooksLikeObjectID("507f1f77bcf86cd79943901z")) // non-hex
	assert.False(t, LooksLikeObjectID(""))
}
