// Package service contains the application use cases for users and tasks.
// It orchestrates domain values and the persistence ports defined in
// internal/store; it never depends on a concrete store implementation.
//
// Services accept raw input (strings as decoded by the transport), build the
// domain value objects, check the cross-aggregate rules (email uniqueness,
// owner existence), and persist the result. Every mutating operation performs
// exactly one store write once all checks have passed; the cascading user
// delete is the only operation that writes twice, inside one transaction.
//
// Errors returned are either *domain.Error values, which callers classify
// with domain.KindOf, or wrapped infrastructure errors.
package service
