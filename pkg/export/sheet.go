// Package export renders monthly attendance sheets for printing and download.
package export

// Sheet is a monthly attendance sheet covering one or more classes.
type Sheet struct {
	Title    string
	Days     int
	Sections []Section
}

// Section holds the grid for a single class.
type Section struct {
	Heading  string
	Students []StudentRow
}

// StudentRow is one roster line: a name plus one cell per day of the month.
type StudentRow struct {
	Name  string
	Cells []string
}
