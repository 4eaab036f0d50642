// Command syncctl runs wearable sync maintenance tasks against the service database.
package main

func main() {
	Execute()
}
