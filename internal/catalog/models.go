package catalog

import (
	"gorm.io/gorm"

	"pipetask-service/internal/pipetask"
)

// VariantTemplate is the operator-editable record of a task variant. It
// overrides the schema and parallel flag a variant ships with and can switch
// the variant off.
type VariantTemplate struct {
	gorm.Model
	TaskType    string `json:"task_type" gorm:"uniqueIndex:idx_variant_key;size:128"`
	VariantName string `json:"variant_name" gorm:"uniqueIndex:idx_variant_key;size:128"`
	Description string `json:"description"`
	ParamSchema string `json:"param_schema" gorm:"type:text"`
	Parallel    bool   `json:"parallel"`
	Disabled    bool   `json:"disabled" gorm:"index"`
}

func (t VariantTemplate) Key() string {
	return pipetask.Key(t.TaskType, t.VariantName)
}

// TemplateFromDescriptor seeds a template from a registered variant.
func TemplateFromDescriptor(d pipetask.Descriptor) VariantTemplate {
	return VariantTemplate{
		TaskType:    d.TypeName,
		VariantName: d.VariantName,
		ParamSchema: d.ParamSchema,
		Parallel:    d.Parallel,
	}
}
