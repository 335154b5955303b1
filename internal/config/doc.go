// Package config loads and validates the pipeline description.
//
// A pipeline file is YAML. It names the version declaration to stamp, the
// native packaging leg, the containerized legs with their recipes, and the
// release host to publish to. Relative paths are resolved against the
// workspace, and the workspace itself against the directory holding the
// pipeline file.
//
// Example:
//
//	project: twitch-drops-miner
//	version:
//	  file: version.py
//	native:
//	  label: Windows
//	  command: [pyinstaller, build.spec]
//	  outputs: ["dist/*.exe"]
//	containers:
//	  - label: Linux-x86_64
//	    image: docker.io/library/ubuntu:22.04
//	    steps:
//	      - name: deps
//	        run: apt-get update && apt-get install -y python3-pip
//	      - name: package
//	        run: pyinstaller build.spec
//	    outputs: ["dist/linux/*"]
//	publish:
//	  tag: dev-build
//	  host:
//	    kind: github
//	    repository: owner/repo
package config
