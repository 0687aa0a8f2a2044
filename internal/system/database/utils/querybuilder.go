/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */


package utils

import (
	"fmt"
	"strings"
)

// ConvertToPostgresParams converts ? placeholders to $1, $2, etc. for PostgreSQL.
// Placeholders inside single-quoted literals are left untouched.
func ConvertToPostgresParams(query string) string {
	paramIndex := 1
	inLiteral := false
	var result strings.Builder
	for i := 0; i < len(query); i++ {
		switch {
		case query[i] == '\'':
			inLiteral = !inLiteral
			result.WriteByte(query[i])
		case query[i] == '?' && !inLiteral:
			result.WriteString(fmt.Sprintf("$%d", paramIndex))
			paramIndex++
		default:
			result.WriteByte(query[i])
		}
	}
	return result.String()
}
