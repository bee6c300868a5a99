// Package mocks provides testify-based mock implementations of the store
// ports, for tests that need to assert exactly which persistence calls an
// operation makes.
//
// Usage:
//
//	users := new(mocks.UserStore)
//	users.On("FindByID", mock.Anything, id).Return(user, nil)
//	users.On("Save", mock.Anything, mock.AnythingOfType("domain.User")).Return(user, nil).Once()
//	...
//	users.AssertExpectations(t)
package mocks
