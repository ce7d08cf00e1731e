// Package loader turns model geometry into collision meshes.
//
// Only glTF 2.0 (.gltf and .glb) is supported. Every primitive of the selected
// mesh contributes its POSITION accessor; NORMAL and TEXCOORD_0 are read along
// when present but play no part in collision.
package loader

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/akmonengine/narrowphase/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var (
	ErrMeshNotFound = errors.New("mesh not found")
	ErrNoGeometry   = errors.New("mesh has no position data")
)

// FromFile loads the named mesh of a glTF file and builds its collision mesh.
func FromFile(path string, meshName string) (*actor.CollisionMesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return FromDocument(doc, meshName)
}

// FromData decodes glTF data and builds the collision mesh of the named mesh.
func FromData(data []byte, meshName string) (*actor.CollisionMesh, error) {
	doc := gltf.NewDocument()
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}

	return FromDocument(doc, meshName)
}

// FromDocument builds the collision mesh of the named mesh of a decoded document.
// An empty meshName selects the first mesh.
func FromDocument(doc *gltf.Document, meshName string) (*actor.CollisionMesh, error) {
	vertices, err := Vertices(doc, meshName)
	if err != nil {
		return nil, err
	}

	mesh, ok := actor.NewCollisionMesh(vertices)
	if !ok {
		return nil, fmt.Errorf("mesh %q: %w", meshName, ErrNoGeometry)
	}

	return mesh, nil
}

// Vertices reads the vertices of every primitive of the named mesh, in primitive order.
func Vertices(doc *gltf.Document, meshName string) ([]actor.Vertex, error) {
	mesh, err := findMesh(doc, meshName)
	if err != nil {
		return nil, err
	}

	var vertices []actor.Vertex
	for i, primitive := range mesh.Primitives {
		positionIndex, ok := primitive.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := modeler.ReadPosition(doc, doc.Accessors[positionIndex], nil)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: read positions: %w", mesh.Name, i, err)
		}

		primitiveVertices := make([]actor.Vertex, len(positions))
		for j, p := range positions {
			primitiveVertices[j].Position = mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
		}

		if normalIndex, ok := primitive.Attributes[gltf.NORMAL]; ok {
			normals, err := modeler.ReadNormal(doc, doc.Accessors[normalIndex], nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: read normals: %w", mesh.Name, i, err)
			}
			for j := range min(len(normals), len(primitiveVertices)) {
				n := normals[j]
				primitiveVertices[j].Normal = mgl64.Vec3{float64(n[0]), float64(n[1]), float64(n[2])}
			}
		}

		if uvIndex, ok := primitive.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[uvIndex], nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: read texture coordinates: %w", mesh.Name, i, err)
			}
			for j := range min(len(uvs), len(primitiveVertices)) {
				primitiveVertices[j].UV = mgl64.Vec2{float64(uvs[j][0]), float64(uvs[j][1])}
			}
		}

		vertices = append(vertices, primitiveVertices...)
	}

	if len(vertices) == 0 {
		return nil, fmt.Errorf("mesh %q: %w", mesh.Name, ErrNoGeometry)
	}

	return vertices, nil
}

func findMesh(doc *gltf.Document, meshName string) (*gltf.Mesh, error) {
	if meshName == "" {
		if len(doc.Meshes) == 0 {
			return nil, ErrMeshNotFound
		}
		return doc.Meshes[0], nil
	}

	for _, mesh := range doc.Meshes {
		if mesh.Name == meshName {
			return mesh, nil
		}
	}

	return nil, fmt.Errorf("mesh %q: %w", meshName, ErrMeshNotFound)
}
