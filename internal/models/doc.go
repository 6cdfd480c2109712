// Package models defines the core domain models for Fair Share.
//
// # Models
//
//   - Company: the single company being examined, with its share types
//   - User: an account created at signup, optionally linked to a shareholder
//   - Shareholder: a party holding grants, classified into a group
//   - Grant: a quantity of shares of one type issued on a date
//
// # Design Principles
//
//  1. **Flat data**: relationships are integer IDs, never pointers.
//     A Shareholder lists the IDs of its grants; the Grant records live
//     in their own mapping.
//  2. **Closed enums**: Group and ShareType have a fixed set of values and
//     a Valid method; anything else is rejected before it reaches the store.
//  3. **Copy on read**: slices and maps are cloned when records leave the
//     store so callers cannot mutate stored state.
//
// # JSON
//
// Field names follow the wire format of the client (camelCase,
// shareholderID, shareTypes). Mappings keyed by integer IDs encode as JSON
// objects with string keys.
package models
