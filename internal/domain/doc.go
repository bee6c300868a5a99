// Package domain contains the core business entities, value objects, and
// domain logic of the application: users, their tasks, and the task
// lifecycle. It is independent of any storage or delivery mechanism.
//
// Value objects (ID, UserName, Email, TaskName) can only be obtained through
// their constructors, so holding one means holding valid data. Aggregates
// (User, Task) are plain values whose operations return modified copies.
//
// Failures are reported as *Error values classified by Kind; use errors.Is
// with the kind sentinels (ErrInvalidValue, ErrBusinessRule, ErrNotFound) or
// the finer cause sentinels to inspect them.
package domain
