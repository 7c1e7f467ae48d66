package mariadb

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceandrift/database/dbvalue"
	"github.com/oceandrift/database/driver"
)

func TestConfigDSNDefaultsPortAndOmitsEmptyPassword(t *testing.T) {
	cfg := Config{Host: "db.internal", User: "app", Database: "catalog"}
	assert.Equal(t, "app@tcp(db.internal:3306)/catalog?parseTime=true", cfg.dsn())
}

func TestConfigDSNWithPasswordAndCustomPort(t *testing.T) {
	cfg := Config{Host: "db.internal", Port: 3307, User: "app", Password: "secret", Database: "catalog"}
	assert.Equal(t, "app:secret@tcp(db.internal:3307)/catalog?parseTime=true", cfg.dsn())
}

func TestToDriverArgBoolStaysBool(t *testing.T) {
	arg, err := toDriverArg(dbvalue.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, true, arg)
}

func TestToDriverArgLargeUint64OverflowsToString(t *testing.T) {
	arg, err := toDriverArg(dbvalue.U64(1 << 63))
	require.NoError(t, err)
	assert.IsType(t, "", arg)
}

func TestFromMySQLValueDispatchesOnGoType(t *testing.T) {
	assert.True(t, fromMySQLValue(nil).IsNull())
	assert.Equal(t, dbvalue.U64(5), fromMySQLValue(uint64(5)))
	assert.Equal(t, dbvalue.Blob([]byte("x")), fromMySQLValue([]byte("x")))
}

func TestIsNoResultSetRejectsNilError(t *testing.T) {
	assert.False(t, isNoResultSet(nil))
}

func TestWrapErrorExtractsClientErrorNumber(t *testing.T) {
	cause := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

	err := wrapError(driver.KindExecute, cause)

	assert.Equal(t, 1062, err.Code)
	assert.Equal(t, driver.KindExecute, err.Kind)
	assert.Equal(t, cause, err.Unwrap())
}

func TestWrapErrorLeavesCodeZeroForPlainError(t *testing.T) {
	err := wrapError(driver.KindPrepare, assert.AnError)
	assert.Equal(t, 0, err.Code)
}
