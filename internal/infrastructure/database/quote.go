package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// quoteTimeLayout is accepted by MySQL, SQLite and DuckDB.
const quoteTimeLayout = "2006-01-02 15:04:05.999999"

// mysqlEscaper escapes the characters MySQL treats specially inside a
// quoted string literal.
var mysqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
)

// quoteLiteral renders value as a literal for the given driver.
// Numbers and booleans are unquoted; NULL for nil; everything else is a
// quoted string.
func quoteLiteral(driver string, value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(v)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return quoteString(driver, v.Format(quoteTimeLayout))
	case []byte:
		return quoteString(driver, string(v))
	case string:
		return quoteString(driver, v)
	case fmt.Stringer:
		return quoteString(driver, v.String())
	default:
		return quoteString(driver, fmt.Sprint(v))
	}
}

// quoteString wraps s in single quotes using the driver's escaping rules.
func quoteString(driver, s string) string {
	if driver == DriverMySQL {
		return "'" + mysqlEscaper.Replace(s) + "'"
	}
	// ANSI: the only special character is the quote itself.
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
