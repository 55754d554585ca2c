package domain

import "fmt"

type SourceType string

const (
	SourceTypeDuckDB     SourceType = "duckdb"
	SourceTypeCSV        SourceType = "csv"
	SourceTypeS3         SourceType = "s3"
	SourceTypeSnowflake  SourceType = "snowflake"
	SourceTypeDatabricks SourceType = "databricks"
)

// SourceProfile identifies one configured sales-history source.
type SourceProfile struct {
	Name string
	Type SourceType
}

func (p SourceProfile) String() string {
	return fmt.Sprintf("%s:%s", p.Type, p.Name)
}
