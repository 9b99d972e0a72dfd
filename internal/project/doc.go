// Package project decides which filesystem paths represent tracked projects
// and gathers what is sent when registering one.
//
// A project is a directory directly under the watch root:
//
//	<root>/
//	  my-project/          <- candidate
//	    docs/
//	      concept.md       <- preferred concept document
//	      README.md        <- fallback
//	    node_modules/      <- never watched, never a candidate
//
// Nested directories are never projects. A concept document appearing later
// maps back to its project directory, so a project skipped for lack of
// content is picked up once the document arrives.
package project
