// Package prefs models typed, validated application preferences.
//
// A TypedPreference[T] holds a nullable Value and a nullable DefaultValue.
// Every non-null assignment passes through a fixed pipeline:
//
//  1. Pre transforms the candidate.
//  2. If an allow-list exists and the candidate is a member, IsValid is
//     skipped. A non-member fails outright when undefined values are
//     disallowed.
//  3. IsValid accepts or rejects the candidate.
//  4. Post transforms the accepted value into the stored value.
//
// Assigning null never runs a stage.
//
// Null carries two meanings. When DefaultValue is set, a null Value means
// "use the default" and EffectiveValue returns the default. When both are
// null there is no value in effect at all. Serialized documents cannot
// distinguish an explicit null from an unset value.
//
// Preferences are collected in Groups (flat, optionally bound to a struct)
// and Stores (nested, holding preferences, groups, stores and arrays of
// groups or stores through the StoreItem sum type). Names are trimmed and
// must be non-empty; duplicates are rejected by Add and replaced by
// UpdateOrAdd.
//
// Nothing in this package is safe for concurrent mutation. Callers sharing
// a Store, Group or Preference across goroutines must synchronize access.
package prefs
