// Package contacts wraps the People API for resolving names to email
// addresses across personal, interaction and directory contacts.
package contacts
