package entity

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oceandrift/database/dbvalue"
	"github.com/oceandrift/database/driver"
	"github.com/oceandrift/database/driver/sqlite"
	"github.com/oceandrift/database/query/ast"
	"github.com/oceandrift/database/query/compiler"
)

type Person struct {
	Id   uint64
	Name string
	Age  int64
}

type Author struct {
	Id   uint64
	Name string
}

type Book struct {
	Id       uint64
	Title    string
	AuthorId uint64
}

type Thing struct {
	Id   uint64
	Name string
}

type Tag struct {
	Id   uint64
	Name string
}

func openMemory(t *testing.T, ddl ...string) driver.Conn {
	t.Helper()
	conn, err := sqlite.Open("", driver.OpenMemory)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	for _, stmt := range ddl {
		require.NoError(t, conn.Execute(stmt))
	}
	return conn
}

func TestManagerStoreGetUpdateRemoveRoundTrip(t *testing.T) {
	conn := openMemory(t, `CREATE TABLE person (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)`)

	people, err := New[Person](conn, compiler.SQLite{})
	require.NoError(t, err)
	defer people.Close()

	alice := &Person{Name: "Alice", Age: 30}
	require.NoError(t, people.Store(alice))
	require.NotZero(t, alice.Id)

	got, ok, err := people.Get(alice.Id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Alice", got.Name)
	require.Equal(t, int64(30), got.Age)

	got.Age = 31
	require.NoError(t, people.Update(got))

	again, ok, err := people.Get(alice.Id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(31), again.Age)

	require.NoError(t, people.Remove(alice.Id))
	_, ok, err = people.Get(alice.Id)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestManagerSaveDispatchesToStoreThenUpdate(t *testing.T) {
	conn := openMemory(t, `CREATE TABLE person (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)`)

	people, err := New[Person](conn, compiler.SQLite{})
	require.NoError(t, err)
	defer people.Close()

	bob := &Person{Name: "Bob", Age: 40}
	require.NoError(t, people.Save(bob))
	require.NotZero(t, bob.Id)

	bob.Age = 41
	require.NoError(t, people.Save(bob))

	got, ok, err := people.Get(bob.Id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(41), got.Age)
}

func TestPreCollectionWhereOrderByLimitFetch(t *testing.T) {
	conn := openMemory(t, `CREATE TABLE person (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)`)

	people, err := New[Person](conn, compiler.SQLite{})
	require.NoError(t, err)
	defer people.Close()

	for _, p := range []*Person{
		{Name: "Alice", Age: 61},
		{Name: "Bob", Age: 40},
		{Name: "Carol", Age: 70},
	} {
		require.NoError(t, people.Save(p))
	}

	seniors, err := people.Find().
		Where(ast.Col("age"), ast.OpGE, dbvalue.I64(60)).
		OrderBy(ast.Col("age"), true).
		Fetch()
	require.NoError(t, err)
	require.Len(t, seniors, 2)
	require.Equal(t, "Carol", seniors[0].Name)
	require.Equal(t, "Alice", seniors[1].Name)

	count, err := people.Find().Where(ast.Col("age"), ast.OpGE, dbvalue.I64(60)).Count()
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)

	oldest, err := people.Find().Aggregate(ast.AggMax, ast.Col("age"))
	require.NoError(t, err)
	n, err := oldest.GetAsI64()
	require.NoError(t, err)
	require.Equal(t, int64(70), n)

	first, ok, err := people.Find().OrderBy(ast.Col("age")).First()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Bob", first.Name)
}

func TestPreCollectionDelete(t *testing.T) {
	conn := openMemory(t, `CREATE TABLE person (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)`)

	people, err := New[Person](conn, compiler.SQLite{})
	require.NoError(t, err)
	defer people.Close()

	require.NoError(t, people.Save(&Person{Name: "Alice", Age: 61}))
	require.NoError(t, people.Save(&Person{Name: "Bob", Age: 40}))

	require.NoError(t, people.Find().Where(ast.Col("age"), ast.OpLT, dbvalue.I64(50)).Delete())

	remaining, err := people.Find().Fetch()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "Alice", remaining[0].Name)
}

func TestManyToOneAndOneToMany(t *testing.T) {
	conn := openMemory(t,
		`CREATE TABLE author (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`,
		`CREATE TABLE book (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT, author_id INTEGER)`,
	)
	dialect := compiler.SQLite{}

	authors, err := New[Author](conn, dialect)
	require.NoError(t, err)
	defer authors.Close()
	books, err := New[Book](conn, dialect)
	require.NoError(t, err)
	defer books.Close()

	tolkien := &Author{Name: "J.R.R. Tolkien"}
	require.NoError(t, authors.Save(tolkien))
	hobbit := &Book{Title: "The Hobbit", AuthorId: tolkien.Id}
	require.NoError(t, books.Save(hobbit))
	silmarillion := &Book{Title: "The Silmarillion", AuthorId: tolkien.Id}
	require.NoError(t, books.Save(silmarillion))

	author, ok, err := ManyToOne[Author](conn, dialect, hobbit.Id, "book")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "J.R.R. Tolkien", author.Name)

	authorType := reflect.TypeOf(Author{})
	works, err := OneToMany[Book](conn, dialect, authorType, tolkien.Id)
	require.NoError(t, err)
	require.Len(t, works, 2)
}

func TestManyToManyAssignUnassign(t *testing.T) {
	conn := openMemory(t,
		`CREATE TABLE thing (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`,
		`CREATE TABLE tag (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`,
		`CREATE TABLE tag_thing (tag_id INTEGER, thing_id INTEGER)`,
	)
	dialect := compiler.SQLite{}

	things, err := New[Thing](conn, dialect)
	require.NoError(t, err)
	defer things.Close()
	tags, err := New[Tag](conn, dialect)
	require.NoError(t, err)
	defer tags.Close()

	apple := &Thing{Name: "apple"}
	fruit := &Tag{Name: "fruit"}
	red := &Tag{Name: "red"}
	require.NoError(t, things.Save(apple))
	require.NoError(t, tags.Save(fruit))
	require.NoError(t, tags.Save(red))

	thingType := reflect.TypeOf(Thing{})
	tagType := reflect.TypeOf(Tag{})
	require.NoError(t, ManyToManyAssign(conn, dialect, thingType, tagType, apple.Id, fruit.Id))
	require.NoError(t, ManyToManyAssign(conn, dialect, thingType, tagType, apple.Id, red.Id))

	appleTags, err := ManyToMany[Tag](conn, dialect, thingType, apple.Id)
	require.NoError(t, err)
	require.Len(t, appleTags, 2)

	require.NoError(t, ManyToManyUnassign(conn, dialect, thingType, tagType, apple.Id, red.Id))

	appleTags, err = ManyToMany[Tag](conn, dialect, thingType, apple.Id)
	require.NoError(t, err)
	require.Len(t, appleTags, 1)
	require.Equal(t, "fruit", appleTags[0].Name)
}
