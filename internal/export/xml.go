// Package export renders a user's tasks as an XML document.
package export

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/morabagipravin/task-manager-api/internal/models"
)

// TasksXML builds an XML document for the given tasks:
//
//	<tasks count="N">
//	  <task id="1">
//	    <title>...</title>
//	    ...
//	  </task>
//	</tasks>
func TasksXML(tasks []*models.Task) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("tasks")
	root.CreateAttr("count", strconv.Itoa(len(tasks)))

	for _, task := range tasks {
		el := root.CreateElement("task")
		el.CreateAttr("id", strconv.FormatInt(task.ID, 10))
		el.CreateElement("title").SetText(task.Title)
		if task.Description != "" {
			el.CreateElement("description").SetText(task.Description)
		}
		if task.DueDate != nil {
			el.CreateElement("due_date").SetText(task.DueDate.Format("2006-01-02"))
		}
		el.CreateElement("status").SetText(string(task.Status))
		if len(task.Attachments) > 0 {
			attachments := el.CreateElement("attachments")
			for _, path := range task.Attachments {
				attachments.CreateElement("attachment").SetText(filepath.Base(path))
			}
		}
		el.CreateElement("created_at").SetText(task.CreatedAt.Format(time.RFC3339))
		el.CreateElement("updated_at").SetText(task.UpdatedAt.Format(time.RFC3339))
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}
