package dbvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrictExtractorsRejectWrongKind(t *testing.T) {
	v := I64(42)
	_, err := v.GetU64()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTypeMismatch)

	n, err := v.GetI64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestCoercedExtractorsAcceptRelatedKinds(t *testing.T) {
	cases := []Value{I8(5), I16(5), I32(5), I64(5), U8(5), U16(5), U32(5), U64(5), Bool(true)}
	for _, v := range cases {
		_, err := v.GetAsI64()
		assert.NoError(t, err, v.Kind())
	}

	n, err := Bool(true).GetAsI64()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = Bool(false).GetAsI64()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestGetAsTextFormatsTemporalVariants(t *testing.T) {
	d := DateVal(Date{Year: 2024, Month: 3, Day: 7})
	s, err := d.GetAsText()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-07", s)

	dt := DateTimeVal(DateTime{Date: Date{2024, 3, 7}, TimeOfDay: TimeOfDay{9, 30, 0, 0}})
	s, err = dt.GetAsText()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-07 09:30:00", s)
}

func TestGetAsDateParsesText(t *testing.T) {
	v := Text("2024-12-25")
	d, err := v.GetAsDate()
	require.NoError(t, err)
	assert.Equal(t, Date{2024, 12, 25}, d)
}

func TestEqualRequiresSameKind(t *testing.T) {
	assert.True(t, I64(1).Equal(I64(1)))
	assert.False(t, I64(1).Equal(U64(1)))
	assert.False(t, Null.Equal(I64(0)))
	assert.True(t, Null.Equal(Null))
}

func TestBlobRoundTrip(t *testing.T) {
	b := []byte{1, 2, 3}
	v := Blob(b)
	got, err := v.GetBlob()
	require.NoError(t, err)
	assert.Equal(t, b, got)

	b[0] = 99
	got2, _ := v.GetBlob()
	assert.NotEqual(t, b[0], got2[0], "Blob must copy its input")
}

func TestParseDateTimeAcceptsMultipleLayouts(t *testing.T) {
	_, err := ParseDateTime("2024-03-07 09:30:00")
	require.NoError(t, err)
	_, err = ParseDateTime("2024-03-07T09:30:00.500000")
	require.NoError(t, err)
}
