// Package nodelink renders the city connectivity of a generated map as a
// node-link diagram.
//
// # Overview
//
// Every city becomes a node pinned to its grid position and every corridor
// an edge labelled with its track count. The diagram makes disconnected
// groups of cities easy to spot, which the grid rendering hides on large
// maps.
//
// # Usage
//
//	dot := nodelink.ToDOT(m, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering with the neato engine, which honours pinned positions.
package nodelink
