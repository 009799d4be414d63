package mysql

import (
	"database/sql"
	"strings"
)

// setter collects "col=?" pairs for partial updates.
type setter struct {
	cols []string
	args []any
}

func (s *setter) add(col string, v any) {
	s.cols = append(s.cols, col+"=?")
	s.args = append(s.args, v)
}

func (s *setter) clause() string { return strings.Join(s.cols, ", ") }

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: strings.TrimSpace(s) != ""}
}
