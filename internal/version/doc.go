// Package version stamps a build version into a version declaration and
// restores it afterwards.
//
// The declaration file is treated as three parts: the bytes before the single
// recognised assignment, the assignment itself, and the bytes after it. Only
// the quoted value inside the assignment is ever rewritten, so surrounding
// content is preserved byte for byte.
//
// Stamping writes a backup of the original file first. The backup's existence
// is the signal that a restore is owed; [Stamper.Restore] copies it back over
// the file wholesale and removes it.
//
// Example usage:
//
//	s := version.New(version.Options{Path: "version.py", Name: "__version__"})
//	decl, err := s.Read()
//	if err != nil {
//	    return err
//	}
//	stamped, err := s.Stamp(decl.Value(), "ab12cd3") // "1.2.0.ab12cd3"
//	if err != nil {
//	    return err
//	}
//	defer s.Restore()
package version
