// Provides platform-appropriate paths for cruxrel.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS. The program name "cruxrel" is used as the subdirectory under each
// base path.
package paths
