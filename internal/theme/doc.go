// Package theme applies the user stylesheet to panel surfaces, with an
// embedded default and hot reload of the user file.
package theme
