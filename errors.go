package colib

import (
	"fmt"
	"sync"
)

// Category is a process-global identity for a family of status codes.
//
// Two categories compare equal only by id, never by name or pointer
// identity, so that a collaborator's category registered in a different
// compilation unit still compares correctly.
type Category struct {
	id   uint64
	name string
	msgs map[int]string
}

// NewCategory registers a new status category with a stable 64-bit id.
//
// Collaborators (e.g. a transport or protocol package) call this once,
// typically from a package-level var, to mint their own error taxonomy
// that composes with StatusCode equality and errors.Is.
func NewCategory(id uint64, name string, messages map[int]string) *Category {
	if id == 0 {
		panic("colib: category id must be non-zero")
	}
	if name == "" {
		panic("colib: category name must not be empty")
	}
	cp := make(map[int]string, len(messages))
	for k, v := range messages {
		cp[k] = v
	}
	return &Category{id: id, name: name, msgs: cp}
}

// ID returns the category's stable 64-bit identity.
func (c *Category) ID() uint64 { return c.id }

// Name returns the category's printable name. Not used for equality.
func (c *Category) Name() string { return c.name }

func (c *Category) message(code int) string {
	if msg, ok := c.msgs[code]; ok {
		return msg
	}
	return "undefined"
}

// StatusCode is a (category, integer code) pair identifying an error kind.
//
// Equality between two StatusCode values compares the category's id and
// the integer code, never the category's name or Go pointer identity,
// matching the category-id equality rule of spec §6.
type StatusCode struct {
	category *Category
	code     int
}

// NewStatusCode constructs a StatusCode within category for the given code.
func NewStatusCode(category *Category, code int) StatusCode {
	if category == nil {
		panic("colib: status code category must not be nil")
	}
	return StatusCode{category: category, code: code}
}

// Category returns the code's owning category.
func (s StatusCode) Category() *Category { return s.category }

// Code returns the raw integer code, meaningful only within its category.
func (s StatusCode) Code() int { return s.code }

// Message returns the category-supplied human-readable description.
func (s StatusCode) Message() string {
	if s.category == nil {
		return "undefined"
	}
	return s.category.message(s.code)
}

// Equal reports whether two status codes share a category id and code.
func (s StatusCode) Equal(other StatusCode) bool {
	if s.category == nil || other.category == nil {
		return s.category == other.category && s.code == other.code
	}
	return s.category.id == other.category.id && s.code == other.code
}

// Error implements the error interface so StatusCode can be returned
// directly, or wrapped, as an error.
func (s StatusCode) Error() string {
	name := "undefined"
	if s.category != nil {
		name = s.category.name
	}
	return fmt.Sprintf("%s: %s", name, s.Message())
}

// StatusError pairs a StatusCode with an optional static-lifetime
// description string, matching spec §3's "status code + optional borrowed
// static-lifetime description string".
type StatusError struct {
	Code StatusCode
	Desc string
}

// NewStatusError constructs a StatusError. desc may be empty, in which
// case Error() falls back to the code's category message.
func NewStatusError(code StatusCode, desc string) *StatusError {
	return &StatusError{Code: code, Desc: desc}
}

func (e *StatusError) Error() string {
	if e.Desc != "" {
		return e.Desc
	}
	return e.Code.Error()
}

// Is implements errors.Is support: a *StatusError matches any StatusError
// (or bare StatusCode) with an equal status code.
func (e *StatusError) Is(target error) bool {
	switch t := target.(type) {
	case *StatusError:
		return e.Code.Equal(t.Code)
	case StatusCode:
		return e.Code.Equal(t)
	default:
		return false
	}
}

// core category: co_lib, per spec §6.
const coreCategoryID uint64 = 0x409f1f7642851de6

var coreCategory = NewCategory(coreCategoryID, "co_lib", map[int]string{
	1: "cancel",
	2: "timeout",
	3: "empty",
	4: "full",
	5: "closed",
	6: "broken",
	7: "other",
})

// Core status codes, registered once at package init, per spec §6.
var (
	CodeCancel  = NewStatusCode(coreCategory, 1)
	CodeTimeout = NewStatusCode(coreCategory, 2)
	CodeEmpty   = NewStatusCode(coreCategory, 3)
	CodeFull    = NewStatusCode(coreCategory, 4)
	CodeClosed  = NewStatusCode(coreCategory, 5)
	CodeBroken  = NewStatusCode(coreCategory, 6)
	CodeOther   = NewStatusCode(coreCategory, 7)
)

// Sentinel errors for the core codes, for idiomatic errors.Is comparisons
// against functions in this package (e.g. errors.Is(err, colib.ErrCancel)).
var (
	ErrCancel  = NewStatusError(CodeCancel, "")
	ErrTimeout = NewStatusError(CodeTimeout, "")
	ErrEmpty   = NewStatusError(CodeEmpty, "")
	ErrFull    = NewStatusError(CodeFull, "")
	ErrClosed  = NewStatusError(CodeClosed, "")
	ErrBroken  = NewStatusError(CodeBroken, "")
	ErrOther   = NewStatusError(CodeOther, "")
)

// exampleNetCategoryOnce demonstrates how an out-of-core collaborator
// (e.g. the TCP transport mentioned in spec §1/§6) registers its own
// category. It is unused by the core, but keeps the category id reserved
// and documented, matching the "co_net" row of spec §6's table.
var exampleNetCategoryOnce sync.Once
var exampleNetCategory *Category

// ExampleNetCategory lazily registers and returns the co_net category
// described in spec §6, for collaborators that want to report
// network-layer errors through the same StatusCode machinery.
func ExampleNetCategory() *Category {
	exampleNetCategoryOnce.Do(func() {
		exampleNetCategory = NewCategory(0xf86aa57188f959fd, "co_net", map[int]string{
			1: "eof",
			2: "wrong_address",
			3: "other_net",
		})
	})
	return exampleNetCategory
}
