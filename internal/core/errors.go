// Licensed under the MIT License. See LICENSE file in the project root for details.

package core

import "errors"

// ErrInvalidArity is returned by the tree constructors when K < 2.
//
// A SNZI tree with arity less than 2 has no well-defined child/parent
// indexing (see indexing.go), so construction fails rather than silently
// producing a degenerate tree.
var ErrInvalidArity = errors.New("snzi: arity K must be >= 2")
