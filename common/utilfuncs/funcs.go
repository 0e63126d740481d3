package utilfuncs

import (
	"fmt"
	"os"
)

// PanicIfError aborts the process during bootstrap. Never call it on a request path.
func PanicIfError(err error, message string) {
	if err != nil {
		fmt.Println("panic: " + message)
		fmt.Println(err.Error())
		os.Exit(1)
	}
}
