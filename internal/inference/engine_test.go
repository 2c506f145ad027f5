package inference

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avictorio/taskpilot/internal/catalog"
)

// The Ark-backed engine must satisfy the boundary interface the agent
// depends on.
var _ Engine = (*ArkEngine)(nil)

func TestToolInfosConversion(t *testing.T) {
	specs := []catalog.Spec{
		{
			Name:        "add_task",
			Description: "Add a task to a project",
			Params: []catalog.Param{
				{Name: "project_name", Type: catalog.TypeString, Description: "The project", Required: true},
				{Name: "priority", Type: catalog.TypeString, Description: "Priority level",
					Enum: []string{"low", "medium", "high"}},
				{Name: "confirm", Type: catalog.TypeBoolean, Description: "Must be true"},
			},
		},
		{Name: "view_projects", Description: "View all projects"},
	}

	infos := ToolInfos(specs)
	require.Len(t, infos, 2)

	assert.Equal(t, "add_task", infos[0].Name)
	assert.Equal(t, "Add a task to a project", infos[0].Desc)
	require.NotNil(t, infos[0].ParamsOneOf)

	assert.Equal(t, "view_projects", infos[1].Name)
	require.NotNil(t, infos[1].ParamsOneOf)
}

func TestDataTypeMapping(t *testing.T) {
	assert.Equal(t, schema.String, dataType(catalog.TypeString))
	assert.Equal(t, schema.Integer, dataType(catalog.TypeInteger))
	assert.Equal(t, schema.Number, dataType(catalog.TypeNumber))
	assert.Equal(t, schema.Boolean, dataType(catalog.TypeBoolean))
	assert.Equal(t, schema.String, dataType(catalog.Type("unknown")))
}
