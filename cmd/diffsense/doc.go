// Diffsense sends the current git changes to an AI command-line tool and
// shows its answer in the terminal or in a local browser preview.
//
// Usage:
//
//	diffsense analyze                 # analyze all uncommitted changes
//	diffsense analyze --staged        # analyze staged changes only
//	diffsense analyze --file main.go  # analyze one file
//	diffsense serve --watch           # browser preview, re-run on save
//	diffsense last --format html -o review.html
//	diffsense doctor                  # check git, the tool and the cache
//
// Exit codes: 0 success, 1 analysis failed, 2 usage error, 3 analysis tool
// not available, 4 runtime or git error.
package main
