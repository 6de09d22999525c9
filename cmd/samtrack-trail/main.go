/* Export station trails from logs */
package main

import (
	tracker "github.com/doismellburning/samtrack/src"
)

func main() {
	tracker.TrailMain()
}
