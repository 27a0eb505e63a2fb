package mongo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecimalCodec_RoundTripsAsDecimal128(t *testing.T) {
	type doc struct {
		Cost decimal.Decimal `bson:"cost"`
	}
	reg := newRegistry()

	raw, err := bson.MarshalWithRegistry(reg, doc{Cost: decimal.RequireFromString("23.75")})
	require.NoError(t, err)

	var plain bson.M
	require.NoError(t, bson.Unmarshal(raw, &plain))
	d128, ok := plain["cost"].(primitive.Decimal128)
	require.True(t, ok, "stored as %T", plain["cost"])
	require.Equal(t, "23.75", d128.String())

	var back doc
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &back))
	require.True(t, back.Cost.Equal(decimal.RequireFromString("23.75")))
}

func TestDecimalCodec_DecodesLegacyStrings(t *testing.T) {
	type doc struct {
		Rate decimal.Decimal `bson:"rate"`
	}
	raw, err := bson.Marshal(bson.M{"rate": "2.50"})
	require.NoError(t, err)

	var out doc
	require.NoError(t, bson.UnmarshalWithRegistry(newRegistry(), raw, &out))
	require.Equal(t, "2.5", out.Rate.String())
}
