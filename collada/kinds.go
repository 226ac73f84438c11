package collada

import "fmt"

// Kind is the variant tag of an element. Elements without a dedicated kind
// are bound as KindGeneric and keep only their attributes and text.
type Kind uint16

const (
	KindAny Kind = iota
	KindGeneric
	KindCollada
	KindAsset
	KindUnit
	KindUpAxis
	KindExtra
	KindLibrary
	KindScene
	KindVisualScene
	KindNode
	KindTransform
	KindInstanceGeometry
	KindInstanceController
	KindInstanceNode
	KindInstanceCamera
	KindInstanceLight
	KindInstanceVisualScene
	KindInstanceEffect
	KindInstanceMaterial
	KindInstanceImage
	KindSkeleton
	KindGeometry
	KindMesh
	KindSource
	KindArray
	KindAccessor
	KindParam
	KindInput
	KindVertices
	KindPrimitive
	KindIndexList
	KindController
	KindSkin
	KindBindShapeMatrix
	KindJoints
	KindVertexWeights
	KindMorph
	KindTargets
	KindMaterial
	KindEffect
	KindProfileCommon
	KindNewParam
	KindSurface
	KindSampler
	KindSamplerSource
	KindTechnique
	KindShading
	KindChannel
	KindColor
	KindTexture
	KindFloat
	KindImage
	KindInitFrom
	KindImageData
	KindCamera
	KindLight
	KindAnimation
)

var kindNames = map[Kind]string{
	KindAny:                 "any",
	KindGeneric:             "generic",
	KindCollada:             "COLLADA",
	KindAsset:               "asset",
	KindUnit:                "unit",
	KindUpAxis:              "up_axis",
	KindExtra:               "extra",
	KindLibrary:             "library",
	KindScene:               "scene",
	KindVisualScene:         "visual_scene",
	KindNode:                "node",
	KindTransform:           "transform",
	KindInstanceGeometry:    "instance_geometry",
	KindInstanceController:  "instance_controller",
	KindInstanceNode:        "instance_node",
	KindInstanceCamera:      "instance_camera",
	KindInstanceLight:       "instance_light",
	KindInstanceVisualScene: "instance_visual_scene",
	KindInstanceEffect:      "instance_effect",
	KindInstanceMaterial:    "instance_material",
	KindInstanceImage:       "instance_image",
	KindSkeleton:            "skeleton",
	KindGeometry:            "geometry",
	KindMesh:                "mesh",
	KindSource:              "source",
	KindArray:               "array",
	KindAccessor:            "accessor",
	KindParam:               "param",
	KindInput:               "input",
	KindVertices:            "vertices",
	KindPrimitive:           "primitive",
	KindIndexList:           "index_list",
	KindController:          "controller",
	KindSkin:                "skin",
	KindBindShapeMatrix:     "bind_shape_matrix",
	KindJoints:              "joints",
	KindVertexWeights:       "vertex_weights",
	KindMorph:               "morph",
	KindTargets:             "targets",
	KindMaterial:            "material",
	KindEffect:              "effect",
	KindProfileCommon:       "profile_COMMON",
	KindNewParam:            "newparam",
	KindSurface:             "surface",
	KindSampler:             "sampler",
	KindSamplerSource:       "sampler_source",
	KindTechnique:           "technique",
	KindShading:             "shading",
	KindChannel:             "channel",
	KindColor:               "color",
	KindTexture:             "texture",
	KindFloat:               "float",
	KindImage:               "image",
	KindInitFrom:            "init_from",
	KindImageData:           "image_data",
	KindCamera:              "camera",
	KindLight:               "light",
	KindAnimation:           "animation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var tagKinds = map[string]Kind{
	"COLLADA":               KindCollada,
	"asset":                 KindAsset,
	"unit":                  KindUnit,
	"up_axis":               KindUpAxis,
	"extra":                 KindExtra,
	"scene":                 KindScene,
	"visual_scene":          KindVisualScene,
	"node":                  KindNode,
	"translate":             KindTransform,
	"rotate":                KindTransform,
	"scale":                 KindTransform,
	"matrix":                KindTransform,
	"lookat":                KindTransform,
	"skew":                  KindTransform,
	"instance_geometry":     KindInstanceGeometry,
	"instance_controller":   KindInstanceController,
	"instance_node":         KindInstanceNode,
	"instance_camera":       KindInstanceCamera,
	"instance_light":        KindInstanceLight,
	"instance_visual_scene": KindInstanceVisualScene,
	"instance_effect":       KindInstanceEffect,
	"instance_material":     KindInstanceMaterial,
	"instance_image":        KindInstanceImage,
	"skeleton":              KindSkeleton,
	"geometry":              KindGeometry,
	"mesh":                  KindMesh,
	"source":                KindSource,
	"float_array":           KindArray,
	"Name_array":            KindArray,
	"IDREF_array":           KindArray,
	"SIDREF_array":          KindArray,
	"int_array":             KindArray,
	"bool_array":            KindArray,
	"accessor":              KindAccessor,
	"param":                 KindParam,
	"input":                 KindInput,
	"vertices":              KindVertices,
	"lines":                 KindPrimitive,
	"linestrips":            KindPrimitive,
	"polygons":              KindPrimitive,
	"polylist":              KindPrimitive,
	"triangles":             KindPrimitive,
	"trifans":               KindPrimitive,
	"tristrips":             KindPrimitive,
	"p":                     KindIndexList,
	"vcount":                KindIndexList,
	"v":                     KindIndexList,
	"ph":                    KindGeneric,
	"controller":            KindController,
	"skin":                  KindSkin,
	"bind_shape_matrix":     KindBindShapeMatrix,
	"joints":                KindJoints,
	"vertex_weights":        KindVertexWeights,
	"morph":                 KindMorph,
	"targets":               KindTargets,
	"material":              KindMaterial,
	"effect":                KindEffect,
	"profile_COMMON":        KindProfileCommon,
	"newparam":              KindNewParam,
	"surface":               KindSurface,
	"sampler2D":             KindSampler,
	"technique":             KindTechnique,
	"technique_common":      KindTechnique,
	"constant":              KindShading,
	"lambert":               KindShading,
	"phong":                 KindShading,
	"blinn":                 KindShading,
	"emission":              KindChannel,
	"ambient":               KindChannel,
	"diffuse":               KindChannel,
	"specular":              KindChannel,
	"reflective":            KindChannel,
	"transparent":           KindChannel,
	"shininess":             KindChannel,
	"reflectivity":          KindChannel,
	"transparency":          KindChannel,
	"index_of_refraction":   KindChannel,
	"color":                 KindColor,
	"texture":               KindTexture,
	"float":                 KindFloat,
	"image":                 KindImage,
	"init_from":             KindInitFrom,
	"ref":                   KindInitFrom,
	"data":                  KindImageData,
	"hex":                   KindImageData,
	"camera":                KindCamera,
	"light":                 KindLight,
	"animation":             KindAnimation,
}

// parentKinds limits tags that mean different things depending on where
// they appear.
var parentKinds = map[string][]Kind{
	"translate": {KindNode},
	"rotate":    {KindNode},
	"scale":     {KindNode},
	"matrix":    {KindNode},
	"lookat":    {KindNode},
	"skew":      {KindNode},
	"color":     {KindChannel},
	"float":     {KindChannel},
	"texture":   {KindChannel},
	"param":     {KindAccessor},
	"init_from": {KindImage, KindSurface},
	"ref":       {KindInitFrom},
	"data":      {KindImage},
	"hex":       {KindInitFrom},
	"p":         {KindPrimitive},
	"vcount":    {KindPrimitive, KindVertexWeights},
	"v":         {KindVertexWeights},
}

func kindForTag(tag string, parent Kind) Kind {
	if len(tag) > 8 && tag[:8] == "library_" {
		return KindLibrary
	}
	if tag == "source" && parent == KindSampler {
		return KindSamplerSource
	}
	if allowed, ok := parentKinds[tag]; ok {
		match := false
		for _, k := range allowed {
			if k == parent {
				match = true
				break
			}
		}
		if !match {
			return KindGeneric
		}
	}
	if k, ok := tagKinds[tag]; ok {
		return k
	}
	return KindGeneric
}
