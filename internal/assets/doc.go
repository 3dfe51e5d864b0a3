// Package assets turns logical asset paths into HTML head fragments.
//
// # Include Modes
//
// Every asset is requested by a logical path such as "katex" or
// "style/code/themes/github". The include mode decides the tag:
//
//	embed    <style>/<script> holding the content of {path}/style.css or script.js
//	local    <link>/<script src> pointing at {root}/{path}/style.css or script.js
//	network  <link>/<script src> pointing at the URL stored in {path}/network.url
//
// Local mode never reads the disk; a missing file shows up in the browser.
//
// # Loader Architecture
//
//	Loader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in network.url sidecars and a default theme
//	    ├── FilesystemLoader  - files under the configured root directory
//	    └── Resolver          - filesystem first, embedded for not-found only
//
// # Directory Structure
//
//	{root}/
//	├── katex/
//	│   └── network.url
//	└── style/
//	    ├── themes/{name}/style.css|network.url
//	    └── code/
//	        ├── highlight/script.js|network.url
//	        └── themes/{name}/style.css|network.url
//
// # Security
//
// Logical paths are validated against traversal. FilesystemLoader resolves
// symlinks and verifies reads stay within the root.
package assets
