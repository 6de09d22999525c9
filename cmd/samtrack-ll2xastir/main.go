/* Latitude / Longitude to Xastir units conversion */
package main

import (
	tracker "github.com/doismellburning/samtrack/src"
)

func main() {
	tracker.LL2XastirMain()
}
