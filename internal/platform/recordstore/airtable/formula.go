// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package airtable

import (
	"fmt"
	"strings"

	"github.com/taibuivan/storefront/internal/platform/recordstore"
)

var stringEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// formula renders an equality filter as an Airtable formula.
//
// Values are quoted string literals with backslashes and quotes escaped, so
// caller input can never terminate the literal. Field names cannot be escaped
// inside braces and are rejected when they contain one.
func formula(filter *recordstore.Filter) (string, error) {
	if strings.ContainsAny(filter.Field, "{}") {
		return "", fmt.Errorf("%w: field name %q", recordstore.ErrInvalidQuery, filter.Field)
	}
	return fmt.Sprintf("{%s} = '%s'", filter.Field, stringEscaper.Replace(filter.Value)), nil
}
