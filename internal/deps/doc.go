// Package deps inspects external executables: PATH search with platform
// candidate names, permission checks, and version-check verification.
package deps
