// Command forcectl runs SOQL queries, SOSL searches, record inserts and
// composite batches against a Salesforce org from the command line.
package main

func main() {
	Execute()
}
