package store

import (
	"strings"

	"gorm.io/gorm/schema"
)

// namingStrategy embeds GORM's default naming strategy and overrides its
// table, column, join-table, foreign-key and index names with a corrected
// CamelCase -> snake_case mapper; TableName pluralizes by appending "s".
type namingStrategy struct {
	schema.NamingStrategy
}

func (ns namingStrategy) TableName(str string) string {
	return toSnakeCase(str) + "s"
}

func (ns namingStrategy) ColumnName(table, column string) string {
	return toSnakeCase(column)
}

func (ns namingStrategy) JoinTableName(joinTable string) string {
	return toSnakeCase(joinTable)
}

func (ns namingStrategy) RelationshipFKName(rel schema.Relationship) string {
	return toSnakeCase(rel.Name) + "_id"
}

func (ns namingStrategy) IndexName(table, column string) string {
	return "idx_" + table + "_" + column
}

// toSnakeCase lowercases only runes that are actually uppercase, inserting
// an underscore at each CamelCase boundary: before an uppercase letter that
// follows a lowercase letter or digit, and before the last letter of an
// uppercase run that is followed by a lowercase one ("UserID" -> "user_id",
// "HTTPServer" -> "http_server"). Non-letters pass through untouched.
func toSnakeCase(str string) string {
	runes := []rune(str)
	var b strings.Builder
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
				if (prev >= 'a' && prev <= 'z') || (prev >= '0' && prev <= '9') || (prev >= 'A' && prev <= 'Z' && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
