// Package media turns aligned transcript matches into screenshots and
// clips, naming assets deterministically so reruns skip finished work.
package media
