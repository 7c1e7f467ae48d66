package entity

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceandrift/database/dbvalue"
)

type person struct {
	Id   uint64
	Name string
	Age  int64
}

type ticket struct {
	Id    uuid.UUID
	Title string
}

type badID struct {
	Id   string
	Name string
}

type noID struct {
	Name string
}

func TestSchemaForDerivesTableAndColumns(t *testing.T) {
	s, err := schemaFor(reflect.TypeOf(person{}))
	require.NoError(t, err)
	assert.Equal(t, "person", s.table)
	assert.Equal(t, []string{"id", "name", "age"}, s.columns)
	assert.Equal(t, idKindU64, s.idKind)
}

func TestSchemaForRecognizesUUIDPrimaryKey(t *testing.T) {
	s, err := schemaFor(reflect.TypeOf(ticket{}))
	require.NoError(t, err)
	assert.Equal(t, idKindUUID, s.idKind)
}

func TestSchemaForRejectsNonUint64NonUUIDID(t *testing.T) {
	_, err := schemaFor(reflect.TypeOf(badID{}))
	require.Error(t, err)
}

func TestSchemaForRequiresAnIDField(t *testing.T) {
	_, err := schemaFor(reflect.TypeOf(noID{}))
	require.Error(t, err)
}

func TestDataColumnsExcludesID(t *testing.T) {
	s, err := schemaFor(reflect.TypeOf(person{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, s.dataColumns())
}

func TestUnsavedConventionByIDKind(t *testing.T) {
	s, err := schemaFor(reflect.TypeOf(person{}))
	require.NoError(t, err)
	p := person{}
	assert.True(t, s.unsaved(reflect.ValueOf(p)))
	p.Id = 1
	assert.False(t, s.unsaved(reflect.ValueOf(p)))

	ts, err := schemaFor(reflect.TypeOf(ticket{}))
	require.NoError(t, err)
	tk := ticket{}
	assert.True(t, ts.unsaved(reflect.ValueOf(tk)))
	tk.Id = uuid.New()
	assert.False(t, ts.unsaved(reflect.ValueOf(tk)))
}

func TestRowToEntityRoundTrip(t *testing.T) {
	s, err := schemaFor(reflect.TypeOf(person{}))
	require.NoError(t, err)
	row := dbvalue.Row{dbvalue.U64(3), dbvalue.Text("Alice"), dbvalue.I64(30)}

	var p person
	require.NoError(t, rowToEntity(s, row, reflect.ValueOf(&p).Elem()))
	assert.Equal(t, person{Id: 3, Name: "Alice", Age: 30}, p)
}

func TestRowToEntityRejectsColumnCountMismatch(t *testing.T) {
	s, err := schemaFor(reflect.TypeOf(person{}))
	require.NoError(t, err)
	row := dbvalue.Row{dbvalue.U64(3)}

	var p person
	err = rowToEntity(s, row, reflect.ValueOf(&p).Elem())
	require.Error(t, err)
}
